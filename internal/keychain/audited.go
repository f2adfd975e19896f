package keychain

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benaskins/keystore/internal/audit"
)

// AuditedStore wraps a SecretStore and adds audit logging and metadata
// tracking. Errors from the inner store are returned unchanged in kind.
type AuditedStore struct {
	inner    SecretStore
	audit    *audit.Logger
	metadata *MetadataStore
	group    string
	actor    string // "cli" or "rotation"
	logger   *slog.Logger
}

var _ SecretStore = (*AuditedStore)(nil)

// NewAuditedStore wraps an existing store with audit logging. group names
// the vault group in audit entries.
func NewAuditedStore(inner SecretStore, auditLog *audit.Logger, metadata *MetadataStore, group, actor string) *AuditedStore {
	return &AuditedStore{
		inner:    inner,
		audit:    auditLog,
		metadata: metadata,
		group:    group,
		actor:    actor,
		logger:   slog.With("component", "keychain", "group", group),
	}
}

func (s *AuditedStore) SetValue(value, account string) error {
	err := s.inner.SetValue(value, account)
	s.record(audit.Entry{Action: audit.ActionSecretWrite, Account: account}, err)
	if err != nil {
		return fmt.Errorf("audited store set: %w", err)
	}

	if err := s.metadata.Touch(account, time.Now().UTC(), false); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}
	return nil
}

func (s *AuditedStore) GetValue(account string) (string, bool, error) {
	val, ok, err := s.inner.GetValue(account)
	entry := audit.Entry{Action: audit.ActionSecretRead, Account: account}
	if err == nil {
		entry.Found = &ok
	}
	s.record(entry, err)
	if err != nil {
		return "", false, fmt.Errorf("audited store get: %w", err)
	}
	return val, ok, nil
}

func (s *AuditedStore) RemoveValue(account string) error {
	err := s.inner.RemoveValue(account)
	s.record(audit.Entry{Action: audit.ActionSecretRemove, Account: account}, err)
	if err != nil {
		return fmt.Errorf("audited store remove: %w", err)
	}

	if err := s.metadata.Delete(account); err != nil {
		return fmt.Errorf("deleting metadata: %w", err)
	}
	return nil
}

func (s *AuditedStore) RemoveAllValues() error {
	err := s.inner.RemoveAllValues()
	s.record(audit.Entry{Action: audit.ActionSecretClear}, err)
	if err != nil {
		return fmt.Errorf("audited store clear: %w", err)
	}

	if err := s.metadata.Clear(); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}
	return nil
}

// Rotate runs a rotation command, stores its output as the new value for
// account and records the rotation. On failure the old value is kept.
func (s *AuditedStore) Rotate(account, command string) error {
	output, err := runRotationCommand(command)
	if err != nil {
		s.record(audit.Entry{Action: audit.ActionSecretRotate, Account: account, Command: command}, err)
		return fmt.Errorf("rotation command failed: %w", err)
	}

	err = s.inner.SetValue(output, account)
	s.record(audit.Entry{Action: audit.ActionSecretRotate, Account: account, Command: command}, err)
	if err != nil {
		return fmt.Errorf("storing rotated secret: %w", err)
	}

	if err := s.metadata.Touch(account, time.Now().UTC(), true); err != nil {
		return fmt.Errorf("saving rotation metadata: %w", err)
	}
	return nil
}

// Metadata returns the metadata store for direct access.
func (s *AuditedStore) Metadata() *MetadataStore {
	return s.metadata
}

// record writes an audit entry. Audit logging is best-effort; a failure to
// log does not fail the operation.
func (s *AuditedStore) record(entry audit.Entry, opErr error) {
	entry.Group = s.group
	if entry.Actor == "" {
		entry.Actor = s.actor
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if err := s.audit.Log(entry); err != nil {
		s.logger.Warn("audit log write failed", "action", entry.Action, "error", err)
	}
}
