// Copyright (c) 2025 BVK Chaitanya

package kvutil

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/bvkgo/kv"
)

func Get[T any](ctx context.Context, g kv.Getter, key string) (*T, error) {
	value, err := g.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not Get from %q: %w", key, err)
	}
	gv := new(T)
	if err := gob.NewDecoder(value).Decode(gv); err != nil {
		return nil, fmt.Errorf("could not gob-decode value at key %q: %w", key, err)
	}
	return gv, nil
}

func Set[T any](ctx context.Context, s kv.Setter, key string, value *T) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("could not gob-encode value for key %q: %w", key, err)
	}
	return s.Set(ctx, key, &buf)
}

type IterFunc[T any] func(context.Context, string, *T) error

// ErrStop can be returned by an IterFunc to end the iteration early without
// an error.
var ErrStop = errors.New("stop iteration")

func iterate[T any](ctx context.Context, it kv.Iterator, fn IterFunc[T]) error {
	defer kv.Close(it)

	for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
		gv := new(T)
		if err := gob.NewDecoder(v).Decode(gv); err != nil {
			return fmt.Errorf("could not decode value at key %q: %w", k, err)
		}
		if err := fn(ctx, k, gv); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}

	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not complete the iteration: %w", err)
	}
	return nil
}

// Ascend calls fn on every key in the [begin, end) range in ascending order.
func Ascend[T any](ctx context.Context, r kv.Reader, begin, end string, fn IterFunc[T]) error {
	it, err := r.Ascend(ctx, begin, end)
	if err != nil {
		return err
	}
	return iterate(ctx, it, fn)
}

// Descend is similar to Ascend, but walks the range in descending order.
func Descend[T any](ctx context.Context, r kv.Reader, begin, end string, fn IterFunc[T]) error {
	it, err := r.Descend(ctx, begin, end)
	if err != nil {
		return err
	}
	return iterate(ctx, it, fn)
}

// DeleteRange deletes every key in the [begin, end) range and returns the
// number of deleted keys.
func DeleteRange(ctx context.Context, rw kv.ReadWriter, begin, end string) (int, error) {
	it, err := rw.Ascend(ctx, begin, end)
	if err != nil {
		return 0, err
	}
	defer kv.Close(it)

	var keys []string
	for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
		keys = append(keys, k)
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("could not complete the iteration: %w", err)
	}
	for _, k := range keys {
		if err := rw.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("could not delete key %q: %w", k, err)
		}
	}
	return len(keys), nil
}

// PathRange returns the key range that covers all keys under the directory.
func PathRange(dir string) (begin string, end string) {
	dir = path.Clean(dir)
	if dir == "/" {
		return "", ""
	}
	begin = dir + string('/')
	end = dir + string('/'+1)
	return begin, end
}
