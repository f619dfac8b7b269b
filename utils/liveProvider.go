package utils

import (
	"encoding/json"
	"fmt"
	"log"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// Meeting is the provider-side handle for a live class
type Meeting struct {
	Ref     string `json:"ref"`
	JoinURL string `json:"join_url"`
}

// CreateMeeting provisions a meeting room at the external provider and
// returns its reference and join URL
func CreateMeeting(title string) (*Meeting, error) {
	if config.AppConfig == nil || config.AppConfig.MeetingApiKey == "" {
		return nil, fmt.Errorf("meeting provider not configured")
	}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.MeetingApiKey).
		SetBody(map[string]string{"topic": title}).
		Post(config.AppConfig.MeetingApiURL + "meetings")
	if err != nil {
		log.Printf("Error creating meeting: %v", err)
		return nil, err
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		log.Printf("Meeting provider returned %d: %s", resp.StatusCode(), resp.String())
		return nil, fmt.Errorf("meeting provider returned status %d", resp.StatusCode())
	}

	var created struct {
		ID      string `json:"id"`
		JoinURL string `json:"join_url"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		log.Printf("Error parsing meeting response: %v", err)
		return nil, err
	}
	return &Meeting{Ref: created.ID, JoinURL: created.JoinURL}, nil
}

// EndMeeting closes the meeting room at the provider
func EndMeeting(ref string) error {
	if config.AppConfig == nil || config.AppConfig.MeetingApiKey == "" {
		return fmt.Errorf("meeting provider not configured")
	}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.MeetingApiKey).
		Delete(config.AppConfig.MeetingApiURL + "meetings/" + ref)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("meeting provider returned status %d", resp.StatusCode())
	}
	return nil
}
