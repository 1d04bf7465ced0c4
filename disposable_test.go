package colite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heads(l *disposableList) []Disposable {
	var s []Disposable
	l.forEach(func(d Disposable) { s = append(s, d) })
	return s
}

func TestDisposableList(t *testing.T) {
	// Non-nil funcs keep reflect-based equality from conflating two
	// structurally empty handles; removal is by identity.
	a := &completionHandle{f: func(Result[any]) {}}
	b := &completionHandle{f: func(Result[any]) {}}
	c := &cancelHandle{f: func() {}}

	var l *disposableList
	assert.Nil(t, l.remove(a), "removing from the empty list")

	l = l.cons(a).cons(b).cons(c)
	require.Equal(t, []Disposable{c, b, a}, heads(l), "iteration is most-recently-added first")

	t.Run("RemoveHead", func(t *testing.T) {
		assert.Equal(t, []Disposable{b, a}, heads(l.remove(c)))
	})
	t.Run("RemoveMiddle", func(t *testing.T) {
		pruned := l.remove(b)
		assert.Equal(t, []Disposable{c, a}, heads(pruned))
		assert.Equal(t, []Disposable{c, b, a}, heads(l), "the original list is untouched")
	})
	t.Run("RemoveAbsent", func(t *testing.T) {
		assert.Same(t, l, l.remove(&completionHandle{}), "removal of an absent handle returns the same list")
	})
	t.Run("RemoveByIdentity", func(t *testing.T) {
		// Two distinct handles with identical contents are distinct nodes.
		x := &cancelHandle{f: func() {}}
		y := &cancelHandle{f: func() {}}
		l := (*disposableList)(nil).cons(x).cons(y)
		assert.Equal(t, []Disposable{y}, heads(l.remove(x)))
	})
}

func TestDisposableListNotify(t *testing.T) {
	var completions, cancels int
	res := Success[any]("x")

	var l *disposableList
	l = l.cons(&completionHandle{f: func(r Result[any]) {
		assert.Equal(t, res, r)
		completions++
	}})
	l = l.cons(&cancelHandle{f: func() { cancels++ }})
	l = l.cons(&completionHandle{f: func(Result[any]) { completions++ }})

	l.notifyCompletion(res)
	assert.Equal(t, 2, completions, "all completion handlers, nothing else")
	assert.Equal(t, 0, cancels)

	l.notifyCancellation()
	assert.Equal(t, 1, cancels, "all cancel handlers, nothing else")
	assert.Equal(t, 2, completions)
}

func TestDisposableFunc(t *testing.T) {
	called := 0
	var d Disposable = DisposableFunc(func() { called++ })
	d.Dispose()
	d.Dispose()
	assert.Equal(t, 2, called)
}
