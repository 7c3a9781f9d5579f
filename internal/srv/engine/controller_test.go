package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_NowPlayingStartsAsNone(t *testing.T) {
	c := NewController()
	name, ok := c.NowPlaying()
	assert.False(t, ok)
	assert.Equal(t, NoneName, name)
}

func TestController_SubmitMostRecentWins(t *testing.T) {
	c := NewController()
	c.Submit("a.gif")
	c.Submit("b.gif")
	assert.True(t, c.Signal().IsSet())

	item, override := c.Next(LibraryItem("lib.gif"))
	require.True(t, override)
	assert.Equal(t, LibraryItem("b.gif"), item)
	assert.False(t, c.Signal().IsSet())

	item, override = c.Next(LibraryItem("lib.gif"))
	assert.False(t, override)
	assert.Equal(t, LibraryItem("lib.gif"), item)
}

func TestController_NextWithoutOverride(t *testing.T) {
	c := NewController()
	for _, name := range []string{"x.gif", "y.gif", "x.gif", "y.gif"} {
		item, override := c.Next(LibraryItem(name))
		assert.False(t, override)
		assert.Equal(t, name, item.Name)
	}

	item, _ := c.Next(ClockItem)
	assert.True(t, item.Clock)
}

func TestController_SkipClearedByNext(t *testing.T) {
	c := NewController()
	c.Skip()
	assert.True(t, c.Signal().IsSet())
	assert.False(t, c.Pending())

	_, override := c.Next(LibraryItem("a.gif"))
	assert.False(t, override)
	assert.False(t, c.Signal().IsSet())
}

func TestController_ConcurrentSubmitKeepsOneRequest(t *testing.T) {
	c := NewController()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Submit("z.gif")
		}()
	}
	wg.Wait()

	_, override := c.Next(Item{})
	assert.True(t, override)
	_, override = c.Next(Item{})
	assert.False(t, override)
}

func TestController_NowPlayingUnderConcurrentReads(t *testing.T) {
	c := NewController()
	names := []string{"first-item-with-a-long-name.gif", "b.gif", ClockName}
	valid := map[string]bool{NoneName: true}
	for _, name := range names {
		valid[name] = true
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				name, _ := c.NowPlaying()
				if !valid[name] {
					t.Errorf("torn now playing value %q", name)
					return
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		c.setNowPlaying(names[i%len(names)])
	}
	close(stop)
	wg.Wait()
}
