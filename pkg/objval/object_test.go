// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

func TestRefCountLifecycle(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("hello"))
	require.EqualValues(t, 1, o.RefCount())

	o.IncrRef()
	require.EqualValues(t, 2, o.RefCount())

	o.DecrRef()
	require.EqualValues(t, 1, o.RefCount())

	o.DecrRef()
	require.EqualValues(t, 0, o.RefCount())
}

func TestSharedObjectSkipsRefCounting(t *testing.T) {
	shared := objval.NewShared(objval.TypeString, objval.EncodingInt, nil)
	require.True(t, shared.IsShared())

	shared.IncrRef()
	shared.DecrRef()
	shared.DecrRef()
	assert.True(t, shared.IsShared(), "shared objects never change refcount class")
}

func TestStaticDecrRefPanics(t *testing.T) {
	static := objval.NewStatic(objval.TypeString, objval.EncodingInt, nil)
	require.True(t, static.IsStatic())
	assert.Panics(t, func() { static.DecrRef() })
}

func TestDecrRefUnderflowPanics(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("x"))
	o.DecrRef()
	assert.Panics(t, func() { o.DecrRef() })
}

func TestValidEncoding(t *testing.T) {
	assert.True(t, objval.ValidEncoding(objval.TypeString, objval.EncodingInt))
	assert.False(t, objval.ValidEncoding(objval.TypeString, objval.EncodingZiplist))
	assert.True(t, objval.ValidEncoding(objval.TypeList, objval.EncodingQuicklist))
}
