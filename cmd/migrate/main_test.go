package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error         { return f.upErr }
func (f *fakeMigrator) Steps(n int) error { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Force(v int) error { f.forced = v; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, f.verErr
}

func TestRunSubcommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		m       *fakeMigrator
		want    string
		wantErr bool
	}{
		{name: "default up", m: &fakeMigrator{}, want: "migrations complete"},
		{name: "up no change", args: []string{"up"}, m: &fakeMigrator{upErr: migrate.ErrNoChange}, want: "migrations complete"},
		{name: "up failure", args: []string{"up"}, m: &fakeMigrator{upErr: errors.New("boom")}, wantErr: true},
		{name: "down default", args: []string{"down"}, m: &fakeMigrator{}, want: "rolled back 1"},
		{name: "down n", args: []string{"down", "2"}, m: &fakeMigrator{}, want: "rolled back 2"},
		{name: "down bad n", args: []string{"down", "x"}, m: &fakeMigrator{}, wantErr: true},
		{name: "version", args: []string{"version"}, m: &fakeMigrator{version: 1}, want: "version 1"},
		{name: "version empty", args: []string{"version"}, m: &fakeMigrator{verErr: migrate.ErrNilVersion}, want: "no migrations applied"},
		{name: "force", args: []string{"force", "1"}, m: &fakeMigrator{}, want: "forced version to 1"},
		{name: "force missing", args: []string{"force"}, m: &fakeMigrator{}, wantErr: true},
		{name: "unknown", args: []string{"sideways"}, m: &fakeMigrator{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(tt.args, tt.m, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, out.String())
			}
		})
	}
}

func TestRunDownUsesNegativeSteps(t *testing.T) {
	m := &fakeMigrator{}
	if err := run([]string{"down", "3"}, m, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.steps) != 1 || m.steps[0] != -3 {
		t.Fatalf("expected Steps(-3), got %v", m.steps)
	}
}
