package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
)

func testProfile() models.ParticipantProfile {
	return models.ParticipantProfile{
		Name:               "Jamie Rivera",
		Email:              "jamie@example.com",
		Phone:              "+14155550134",
		DOB:                "March 4, 1990",
		Gender:             "female",
		City:               "Bozeman",
		State:              "MT",
		Zip:                "59715",
		DiagnosisHistory:   "Depression, PTSD",
		Bipolar:            "no",
		BloodPressure:      "no",
		KetamineUse:        "no",
		Veteran:            "yes",
		MatchedStudyTitles: []string{"Study A", "Study B"},
		RiversMatch:        true,
	}
}

func TestPushLeadBuildsMutation(t *testing.T) {
	var captured struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"create_item":{"id":"987654"}}}`))
	}))
	defer server.Close()

	client := NewMondayClient("test-key", server.URL, "2003358867", "topics", 5*time.Second)
	itemID, err := client.PushLead(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if itemID != "987654" {
		t.Fatalf("unexpected item id %q", itemID)
	}

	if captured.Variables["board_id"] != "2003358867" {
		t.Fatalf("unexpected board id %v", captured.Variables["board_id"])
	}
	if captured.Variables["group_id"] != "topics" {
		t.Fatalf("unexpected group id %v", captured.Variables["group_id"])
	}
	if captured.Variables["item_name"] != "Jamie Rivera" {
		t.Fatalf("unexpected item name %v", captured.Variables["item_name"])
	}

	columns, ok := captured.Variables["column_values"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected column values object, got %T", captured.Variables["column_values"])
	}
	if columns["text_mkrw88sj"] != "Bozeman" {
		t.Fatalf("unexpected city column %v", columns["text_mkrw88sj"])
	}
	if columns["text_mkrwfpm2"] != "MT" {
		t.Fatalf("unexpected state column %v", columns["text_mkrwfpm2"])
	}
	if columns["text_mkrwk3tk"] != "1990-03-04" {
		t.Fatalf("expected ISO dob, got %v", columns["text_mkrwk3tk"])
	}
	if columns["text_mkrw4nbt"] != "Study A; Study B" {
		t.Fatalf("unexpected matched titles %v", columns["text_mkrw4nbt"])
	}
	if columns["text_mkrxbqdc"] != "Yes" {
		t.Fatalf("expected river flag column, got %v", columns["text_mkrxbqdc"])
	}

	email, ok := columns["email_mkrwp3sg"].(map[string]interface{})
	if !ok || email["email"] != "jamie@example.com" {
		t.Fatalf("unexpected email column %v", columns["email_mkrwp3sg"])
	}
}

func TestPushLeadSurfacesGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":[{"message":"column not found"}]}`))
	}))
	defer server.Close()

	client := NewMondayClient("test-key", server.URL, "1", "topics", 5*time.Second)
	if _, err := client.PushLead(context.Background(), testProfile()); err == nil {
		t.Fatal("expected error from GraphQL failure")
	}
}

func TestSanitizeReplacesDashes(t *testing.T) {
	if got := sanitize("pre–post"); got != "pre-post" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}

func TestBuildColumnValuesSkipsEmptyFields(t *testing.T) {
	columns := buildColumnValues(models.ParticipantProfile{City: "Bozeman"})
	if _, ok := columns["email_mkrwp3sg"]; ok {
		t.Fatal("expected empty email to be omitted")
	}
	if _, ok := columns["text_mkrwbndm"]; ok {
		t.Fatal("expected empty zip to be omitted")
	}
	if columns["text_mkrw88sj"] != "Bozeman" {
		t.Fatalf("expected city column, got %v", columns)
	}
}
