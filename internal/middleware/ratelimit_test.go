package middleware

import "testing"

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request over burst accepted")
	}
	// other clients are unaffected
	if !rl.Allow("10.0.0.2") {
		t.Error("separate client throttled")
	}
}
