package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/httpclient"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
)

const createItemMutation = `
mutation ($board_id: ID!, $group_id: String!, $item_name: String!, $column_values: JSON!) {
    create_item (
      board_id: $board_id,
      group_id: $group_id,
      item_name: $item_name,
      column_values: $column_values
    ) {
      id
    }
}`

// MondayClient creates one board item per matched lead. The column-id table
// is fixed by the board schema and is not part of the matching contract.
type MondayClient struct {
	apiKey  string
	apiURL  string
	boardID string
	groupID string
	client  *http.Client
}

func NewMondayClient(apiKey, apiURL, boardID, groupID string, timeout time.Duration) *MondayClient {
	return &MondayClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		boardID: boardID,
		groupID: groupID,
		client:  httpclient.New(timeout),
	}
}

// PushLead serializes the participant record into the board's columns and
// creates the item. Returns the created item id.
func (m *MondayClient) PushLead(ctx context.Context, profile models.ParticipantProfile) (string, error) {
	columns := buildColumnValues(profile)

	itemName := sanitize(profile.Name)
	if itemName == "" {
		itemName = "Hey Hope Lead"
	}

	variables := map[string]interface{}{
		"board_id":      m.boardID,
		"group_id":      m.groupID,
		"item_name":     itemName,
		"column_values": columns,
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     createItemMutation,
		"variables": variables,
	})
	if err != nil {
		return "", fmt.Errorf("marshal monday payload: %w", err)
	}

	var itemID string
	err = httpclient.Retry(ctx, 3, 300*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", m.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var body struct {
			Data struct {
				CreateItem struct {
					ID string `json:"id"`
				} `json:"create_item"`
			} `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode monday response: %w", err)
		}
		if len(body.Errors) > 0 {
			return fmt.Errorf("monday rejected item: %s", body.Errors[0].Message)
		}
		itemID = body.Data.CreateItem.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	logger.Log.WithFields(map[string]interface{}{
		"item_id": itemID,
		"board":   m.boardID,
	}).Info("Lead pushed to Monday board")
	return itemID, nil
}

// buildColumnValues maps profile fields onto board column ids.
func buildColumnValues(profile models.ParticipantProfile) map[string]interface{} {
	columns := map[string]interface{}{}

	if email := sanitize(profile.Email); email != "" {
		columns["email_mkrwp3sg"] = map[string]string{"email": email, "text": email}
	}
	if phone := sanitize(profile.Phone); len(phone) > 1 {
		if !strings.HasPrefix(phone, "+") {
			phone = "+" + strings.TrimPrefix(phone, "+")
		}
		columns["phone_mkrwnw09"] = map[string]string{"phone": phone}
	}

	addText := func(columnID, value string) {
		if v := sanitize(value); v != "" {
			columns[columnID] = v
		}
	}

	addText("text_mkrw88sj", profile.City)
	addText("text_mkrwfpm2", profile.State)
	addText("text_mkrwbndm", profile.Zip)

	if dob := sanitize(profile.DOB); dob != "" {
		if parsed, err := time.Parse("January 2, 2006", dob); err == nil {
			columns["text_mkrwk3tk"] = parsed.Format("2006-01-02")
		} else {
			columns["text_mkrwk3tk"] = dob
		}
	}

	addText("text_mkrwc5h6", profile.Gender)
	addText("text_mkrw6ebk", profile.Veteran)
	addText("text_mkrw1n9t", profile.DiagnosisHistory)
	addText("text_mkrwgytp", profile.Bipolar)
	addText("text_mkrwrdv6", profile.BloodPressure)
	addText("text_mkrwcpt", profile.KetamineUse)
	addText("text_mkrwts3h", profile.Pregnant)
	addText("text_mkrw4nbt", strings.Join(profile.MatchedStudyTitles, "; "))

	if profile.RiversMatch {
		columns["text_mkrxbqdc"] = "Yes"
	}

	return columns
}

// sanitize replaces en-dashes the board rejects and trims whitespace.
func sanitize(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, "–", "-"))
}
