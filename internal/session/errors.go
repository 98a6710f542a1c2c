package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPlaying rejects a start while a game is in progress.
	ErrAlreadyPlaying = errors.New("already playing")
	// ErrNotPlaying rejects a guess when there is no active game.
	ErrNotPlaying = errors.New("not playing")
	// ErrStartPending rejects a guess while a start reply waits to be picked up.
	ErrStartPending = fmt.Errorf("%w: start reply pending, send start again", ErrNotPlaying)
	// ErrInvalidWord rejects a guess that is not five lowercase letters.
	ErrInvalidWord = errors.New("invalid word")
	// ErrUninitialized means the coordinator was used before construction.
	ErrUninitialized = errors.New("game session not initialized")
	// ErrInvalidServiceAddress rejects a zero word-service address.
	ErrInvalidServiceAddress = errors.New("invalid wordle service address")
	// ErrUnknownAction rejects payloads the coordinator does not understand.
	ErrUnknownAction = errors.New("unknown action")
)
