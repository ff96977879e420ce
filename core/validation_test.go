package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateMessage(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{
			name:    "valid customer message",
			msg:     &Message{Role: RoleCustomer, Content: "Wo ist meine Bestellung?", Timestamp: validTime},
			wantErr: nil,
		},
		{
			name:    "valid agent message",
			msg:     &Message{Role: RoleAgent, Content: "Ihre Bestellung ist unterwegs.", Timestamp: validTime},
			wantErr: nil,
		},
		{
			name:    "nil message",
			msg:     nil,
			wantErr: ErrInvalidMessage,
		},
		{
			name:    "empty content",
			msg:     &Message{Role: RoleCustomer, Content: "", Timestamp: validTime},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "invalid role",
			msg:     &Message{Role: Role(99), Content: "hello", Timestamp: validTime},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "future timestamp",
			msg:     &Message{Role: RoleCustomer, Content: "hello", Timestamp: futureTime},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{TenantID: "heine", Text: "Lieferzeiten betragen 2-4 Werktage."},
			wantErr: nil,
		},
		{
			name:    "valid chunk without vector",
			chunk:   &Chunk{TenantID: "heine", Text: "Rücksendungen sind kostenlos.", Vector: nil},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "missing tenant",
			chunk:   &Chunk{Text: "orphaned text"},
			wantErr: ErrEmptyTenantID,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{TenantID: "heine"},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		wantErr error
	}{
		{
			name:    "valid session",
			session: &Session{TenantID: "heine", SessionID: "s-1"},
			wantErr: nil,
		},
		{
			name:    "nil session",
			session: nil,
			wantErr: ErrInvalidSession,
		},
		{
			name:    "missing tenant",
			session: &Session{SessionID: "s-1"},
			wantErr: ErrEmptyTenantID,
		},
		{
			name:    "missing session id",
			session: &Session{TenantID: "heine"},
			wantErr: ErrEmptySessionID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.session)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSession() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
