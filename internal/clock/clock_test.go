package clock_test

import (
	"randomchat/backend/internal/clock"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	select {
	case <-tk.C():
		t.Fatal("ticker fired before the clock moved")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its period elapsed")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case at := <-tk.C():
		assert.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("ticker did not fire after one period")
	}
}

func TestFakeStoppedTickerStaysSilent(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	tk.Stop()

	c.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeWaitForTickers(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	go c.NewTicker(time.Second)
	require.True(t, c.WaitForTickers(1, time.Second))
	assert.False(t, c.WaitForTickers(1, 10*time.Millisecond))
}

func TestFakeSetDoesNotFire(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	c.Set(time.Unix(100, 0))
	assert.Equal(t, time.Unix(100, 0), c.Now())
	select {
	case <-tk.C():
		t.Fatal("Set must not fire tickers")
	default:
	}
}
