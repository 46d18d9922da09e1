package admin

import (
	"context"
	"testing"

	"helios/bot/common"
	"helios/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestRun_RejectsBeforeTouchingServices(t *testing.T) {
	f := &Feature{}

	_, err := f.run(context.Background(), nil, nil, "points", common.Options{})
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = f.run(context.Background(), nil, nil, "explode", common.Options{})
	assert.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestFormatFlag(t *testing.T) {
	assert.Equal(t, "<@5> is now a bot admin.", formatFlag(5, true))
	assert.Equal(t, "<@5> is no longer a bot admin.", formatFlag(5, false))
}
