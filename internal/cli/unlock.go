package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// getSimpleText and getPIN are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPIN = GetPIN

// maxPINAttempts is how many wrong PINs Unlock accepts before giving up.
const maxPINAttempts = 3

var errLocked = errors.New("too many wrong PIN attempts")

// Unlock asks for the PIN if one is set. On the very first run it offers to
// set one instead.
func (a *App) Unlock(ctx context.Context) error {
	set, err := a.pins.IsSet(ctx)
	if err != nil {
		return err
	}

	if !set {
		return a.offerPIN(ctx)
	}

	for i := 0; i < maxPINAttempts; i++ {
		p, err := getPIN("Enter PIN", a.out)
		if err != nil {
			return err
		}
		ok, err := a.pins.Verify(ctx, p)
		common.WipeByteArray(p)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fmt.Fprintln(a.out, "Wrong PIN")
	}
	return errLocked
}

func (a *App) offerPIN(ctx context.Context) error {
	asked, err := a.pins.QuestionAsked(ctx)
	if err != nil || asked {
		return err
	}

	answer, err := getSimpleText(a.reader, "Protect the diary with a PIN? (y/N)", a.out)
	if err != nil {
		return err
	}
	if err := a.pins.MarkQuestionAsked(ctx); err != nil {
		return err
	}

	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return a.SetPIN(ctx)
	}
	return nil
}

// SetPIN asks for a new PIN twice and stores it.
func (a *App) SetPIN(ctx context.Context) error {
	first, err := getPIN("New PIN (5 digits)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(first)

	second, err := getPIN("Repeat PIN", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		return fmt.Errorf("PINs do not match: %w", common.ErrInvalidArgument)
	}

	if err := a.pins.Set(ctx, first); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN set")
	return nil
}

// RemovePIN removes the PIN after confirming the current one.
func (a *App) RemovePIN(ctx context.Context) error {
	set, err := a.pins.IsSet(ctx)
	if err != nil {
		return err
	}
	if !set {
		fmt.Fprintln(a.out, "No PIN is set")
		return nil
	}

	p, err := getPIN("Current PIN", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(p)

	ok, err := a.pins.Verify(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("wrong PIN")
	}

	if err := a.pins.Remove(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN removed")
	return nil
}
