package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeUnmarshalLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2025-01-25T10:00:00Z"`, time.Date(2025, 1, 25, 10, 0, 0, 0, time.UTC)},
		{`"2025-01-25T10:00:00.123456"`, time.Date(2025, 1, 25, 10, 0, 0, 123456000, time.UTC)},
		{`"2025-01-25"`, time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		var got Time
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got.Time, tt.want)
		}
	}
}

func TestTimeUnmarshalNull(t *testing.T) {
	t.Parallel()

	var task Task
	if err := json.Unmarshal([]byte(`{"id":1,"due_date":null,"created_at":"2025-01-25T10:00:00"}`), &task); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if task.DueDate != nil {
		t.Errorf("Expected nil due date, got %v", task.DueDate)
	}
	if task.CreatedAt.IsZero() {
		t.Error("Expected created_at to be parsed")
	}
}

func TestStatusUpdateBody(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(StatusUpdate(StatusDone))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"status":"done"}` {
		t.Errorf("Expected status-only body, got %s", data)
	}
}

func TestUserInitials(t *testing.T) {
	t.Parallel()

	u := User{FullName: "ada lovelace byron"}
	if got := u.Initials(); got != "AL" {
		t.Errorf("Expected 'AL', got '%s'", got)
	}

	u = User{Email: "x@example.com"}
	if got := u.DisplayName(); got != "x@example.com" {
		t.Errorf("Expected email fallback, got '%s'", got)
	}
}
