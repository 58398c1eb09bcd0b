package session

import "testing"

func TestSessionDefaults(t *testing.T) {
	s := New()
	defer s.Close()

	if s.Seed() != 1 {
		t.Errorf("Seed = %d, want 1", s.Seed())
	}
	if s.Workers() < 1 {
		t.Errorf("Workers = %d, want >= 1", s.Workers())
	}
	if s.Logger("test") == nil {
		t.Error("Logger returned nil")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v before Close", err)
	}
}

func TestSessionOptions(t *testing.T) {
	s := New(WithSeed(42), WithWorkers(3))
	defer s.Close()

	if s.Seed() != 42 {
		t.Errorf("Seed = %d, want 42", s.Seed())
	}
	if s.Workers() != 3 {
		t.Errorf("Workers = %d, want 3", s.Workers())
	}
}

func TestSessionClosed(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Err(); err == nil {
		t.Error("Err = nil after Close")
	}
}
