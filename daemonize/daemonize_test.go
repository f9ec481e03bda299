// Copyright (c) 2025 BVK Chaitanya

package daemonize

import "testing"

func TestIsChild(t *testing.T) {
	t.Setenv(EnvKey, "")
	if IsChild() {
		t.Fatalf("process with empty %s must be the parent", EnvKey)
	}
	t.Setenv(EnvKey, "1234")
	if !IsChild() {
		t.Fatalf("process with %s set must be the child", EnvKey)
	}
}
