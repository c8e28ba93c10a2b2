// Package pointer drives the mouse through ydotool.
package pointer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

type Mouse struct{}

func NewMouse() *Mouse { return &Mouse{} }

// MoveTo places the pointer at absolute screen coordinates.
func (m *Mouse) MoveTo(ctx context.Context, x, y int) error {
	err := exec.CommandContext(ctx, "ydotool", "mousemove", "-a",
		strconv.Itoa(x), strconv.Itoa(y)).Run()
	if err != nil {
		return fmt.Errorf("ydotool mousemove: %w", err)
	}
	return nil
}

// Click presses the left button once.
func (m *Mouse) Click(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "ydotool", "click", "0xC0").Run(); err != nil {
		return fmt.Errorf("ydotool click: %w", err)
	}
	return nil
}

// Jiggle nudges the pointer one pixel and back, enough to keep the
// session from idling.
func (m *Mouse) Jiggle(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "ydotool", "mousemove", "--", "1", "1").Run(); err != nil {
		return fmt.Errorf("ydotool mousemove: %w", err)
	}
	if err := exec.CommandContext(ctx, "ydotool", "mousemove", "--", "-1", "-1").Run(); err != nil {
		return fmt.Errorf("ydotool mousemove: %w", err)
	}
	return nil
}
