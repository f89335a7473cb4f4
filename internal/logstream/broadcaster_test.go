// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package logstream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterBacklogIsBounded(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()

	for i := 0; i < backlogSize+10; i++ {
		_, err := b.Write([]byte(fmt.Sprintf("line %d\n", i)))
		require.NoError(t, err)
	}

	backlog := b.Backlog()
	require.Len(t, backlog, backlogSize)
	assert.Equal(t, "line 10\n", string(backlog[0]))
}

func TestBroadcasterFanOut(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	defer cancel()

	b.Write([]byte("hello\n"))

	select {
	case line := <-ch:
		assert.Equal(t, "hello\n", string(line))
	default:
		t.Fatal("subscriber did not receive the line")
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	cancel()

	b.Write([]byte("after\n"))

	select {
	case line := <-ch:
		t.Fatalf("unsubscribed channel received %q", line)
	default:
	}
}

func TestBroadcasterSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()

	_, cancel := b.Subscribe()
	defer cancel()

	// Overflow the subscriber buffer; writes must still return.
	for i := 0; i < subscriberBuffer*2; i++ {
		_, err := b.Write([]byte("x\n"))
		require.NoError(t, err)
	}
}
