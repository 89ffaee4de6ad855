package cmd

import (
	"testing"

	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/urfave/cli/v2"
)

func TestWrapFlags(t *testing.T) {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "some-string"},
		&cli.BoolFlag{Name: "some-bool"},
		&cli.IntFlag{Name: "some-int"},
		&cli.Uint64Flag{Name: "some-uint64"},
		&cli.DurationFlag{Name: "some-duration"},
		&cli.StringSliceFlag{Name: "some-slice"},
	}
	wrapped := WrapFlags(flags)
	assert.Equal(t, len(flags), len(wrapped))
	for i, f := range wrapped {
		assert.DeepEqual(t, flags[i].Names(), f.Names())
	}
}
