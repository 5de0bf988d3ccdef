// Package pin protects the diary with a numeric PIN.
//
// Only a salted Argon2id verifier is stored, in the settings table. Whether
// a PIN is set can be observed through Watch, so a UI can react when the PIN
// is added or removed.
package pin

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/hub"
	"github.com/dmitrijs2005/gophdiary/internal/repositories/settings"
)

// Length is the number of digits of a PIN.
const Length = 5

const (
	keySalt          = "pin_salt"
	keyVerifier      = "pin_verifier"
	keyQuestionAsked = "pin_question_asked"

	saltSize = 16
)

// Store keeps the PIN verifier.
type Store struct {
	db    *sql.DB
	state *hub.Hub[bool]
}

// NewStore returns a Store and publishes whether a PIN is currently set.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db, state: hub.New[bool]()}

	set, err := s.IsSet(ctx)
	if err != nil {
		return nil, err
	}
	s.state.Publish(set)
	return s, nil
}

func (s *Store) repo() settings.Repository {
	return settings.NewSQLiteRepository(s.db)
}

// Validate reports common.ErrInvalidArgument unless pin is exactly Length
// ASCII digits.
func Validate(pin []byte) error {
	if len(pin) != Length {
		return fmt.Errorf("pin must have %d digits: %w", Length, common.ErrInvalidArgument)
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return fmt.Errorf("pin must contain digits only: %w", common.ErrInvalidArgument)
		}
	}
	return nil
}

func (s *Store) IsSet(ctx context.Context) (bool, error) {
	v, err := s.repo().Get(ctx, keyVerifier)
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v != nil, nil
}

// Set replaces the PIN. It also records that the user has been asked to
// choose one.
func (s *Store) Set(ctx context.Context, pin []byte) error {
	if err := Validate(pin); err != nil {
		return err
	}

	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey(pin, salt)
	defer common.WipeByteArray(key)
	verifier := MakeVerifier(key)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := settings.NewSQLiteRepository(tx)
		if err := r.Set(ctx, keySalt, salt); err != nil {
			return err
		}
		if err := r.Set(ctx, keyVerifier, verifier); err != nil {
			return err
		}
		return r.Set(ctx, keyQuestionAsked, []byte{1})
	})
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}

	s.state.Publish(true)
	return nil
}

func (s *Store) Remove(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := settings.NewSQLiteRepository(tx)
		if err := r.Delete(ctx, keyVerifier); err != nil {
			return err
		}
		return r.Delete(ctx, keySalt)
	})
	if err != nil {
		return fmt.Errorf("remove pin: %w", err)
	}

	s.state.Publish(false)
	return nil
}

// Verify reports whether pin matches the stored PIN. Without a stored PIN
// nothing matches.
func (s *Store) Verify(ctx context.Context, pin []byte) (bool, error) {
	r := s.repo()

	salt, err := r.Get(ctx, keySalt)
	if err != nil {
		return false, fmt.Errorf("read pin salt: %w", err)
	}
	saved, err := r.Get(ctx, keyVerifier)
	if err != nil {
		return false, fmt.Errorf("read pin verifier: %w", err)
	}
	if salt == nil || saved == nil {
		return false, nil
	}

	key := DeriveKey(pin, salt)
	defer common.WipeByteArray(key)

	return subtle.ConstantTimeCompare(saved, MakeVerifier(key)) == 1, nil
}

// QuestionAsked reports whether the user was already offered to set a PIN.
func (s *Store) QuestionAsked(ctx context.Context) (bool, error) {
	v, err := s.repo().Get(ctx, keyQuestionAsked)
	if err != nil {
		return false, fmt.Errorf("read pin question: %w", err)
	}
	return v != nil, nil
}

func (s *Store) MarkQuestionAsked(ctx context.Context) error {
	if err := s.repo().Set(ctx, keyQuestionAsked, []byte{1}); err != nil {
		return fmt.Errorf("mark pin question: %w", err)
	}
	return nil
}

// Watch subscribes to the "PIN is set" state.
func (s *Store) Watch() *hub.Subscription[bool] {
	return s.state.Subscribe()
}

func (s *Store) Close() {
	s.state.Close()
}
