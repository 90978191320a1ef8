package gamestate

import "testing"

func TestDecodeServerPayload(t *testing.T) {
	raw := `{
		"fen": "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		"lastMove": "e2e4",
		"isOurTurn": false,
		"type": "gameState",
		"playerColor": "black",
		"ratings": {"white": 1500, "black": 1432.5},
		"timeLeft": {"white": 60000, "black": 59000},
		"botColor": "black",
		"positionAdvantage": -0.4,
		"chatMessages": [{"text": "gl", "username": "anon", "time": "2024-01-02T03:04:05Z"}]
	}`
	s, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Kind != KindState || s.LastMove != "e2e4" || s.BotColor != Black {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.RemainingTime == nil || s.RemainingTime.White != 60000 {
		t.Fatalf("remaining time not decoded: %+v", s.RemainingTime)
	}
	if r, ok := s.Ratings.For(Black); !ok || r != 1432.5 {
		t.Fatalf("rating for black = %v %v", r, ok)
	}
	if s.PositionAdvantage == nil || *s.PositionAdvantage != -0.4 {
		t.Fatalf("advantage not decoded")
	}
	if len(s.ChatMessages) != 1 || s.ChatMessages[0].Username != "anon" {
		t.Fatalf("chat not decoded: %+v", s.ChatMessages)
	}
	side, ok := s.SideToMove()
	if !ok || side != Black {
		t.Fatalf("side to move = %v %v", side, ok)
	}
}

func TestDecodeKinds(t *testing.T) {
	cases := []struct {
		raw  string
		want Kind
	}{
		{`{"fen":"x","type":"gameStart"}`, KindStart},
		{`{"fen":"x","type":"error","message":"boom"}`, KindError},
		{`{"fen":"x"}`, KindState},
		{`{"fen":"x","type":"gameOver"}`, KindState},
	}
	for _, tc := range cases {
		s, err := Decode([]byte(tc.raw))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.raw, err)
		}
		if s.Kind != tc.want {
			t.Fatalf("%s: kind %q, want %q", tc.raw, s.Kind, tc.want)
		}
		if s.Position != "x" {
			t.Fatalf("%s: position dropped", tc.raw)
		}
	}
}

func TestDecodeNullLastMoveAndOptionalFields(t *testing.T) {
	s, err := Decode([]byte(`{"fen":"8/8/8/8/8/8/8/8 w - - 0 1","lastMove":null,"type":"gameStart"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := s.Ratings.For(White); ok {
		t.Fatalf("missing ratings should report unknown")
	}
	if s.LastMove != "" || s.RemainingTime != nil || s.PositionAdvantage != nil || s.Ratings != nil {
		t.Fatalf("expected absent optionals: %+v", s)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"type":"mystery"}`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestSideToMoveUnreadable(t *testing.T) {
	if _, ok := (&Snapshot{Position: "garbage"}).SideToMove(); ok {
		t.Fatalf("garbage position should not yield a side")
	}
	var nilSnap *Snapshot
	if _, ok := nilSnap.SideToMove(); ok {
		t.Fatalf("nil snapshot should not yield a side")
	}
}
