package physics

import (
	"fmt"

	"github.com/vovakirdan/arena-pong/internal/core"
)

func configErr(msg string) error {
	return fmt.Errorf("physics: %s: %w", msg, core.ErrConfiguration)
}
