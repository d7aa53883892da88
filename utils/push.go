package utils

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"property-marketplace-server/models"

	"gorm.io/gorm"
)

// ExpoPushURL is the Expo push service endpoint. Tests point it at a local server.
var ExpoPushURL = "https://exp.host/--/api/v2/push/send"

type PushMessage struct {
	To        string                 `json:"to"`
	Sound     string                 `json:"sound"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

// SendPush delivers a push notification through the Expo push service
func SendPush(pushToken, title, body string, data map[string]interface{}) error {
	msg := PushMessage{
		To:    pushToken,
		Sound: "default",
		Title: title,
		Body:  body,
		Data:  data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(ExpoPushURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Push service returned status %d", resp.StatusCode)
	}

	return nil
}

// Notify records a notification for the user and pushes it if the user has a
// registered push token. Push failures are logged, not returned: the stored
// notification is the source of truth.
func Notify(db *gorm.DB, userID uint, title, body, data string) error {
	notification := models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   data,
	}

	if err := db.Create(&notification).Error; err != nil {
		return err
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil
	}

	if user.PushToken != "" {
		if err := SendPush(user.PushToken, title, body, nil); err != nil {
			log.Printf("Failed to push notification to user %d: %v", userID, err)
		}
	}

	return nil
}
