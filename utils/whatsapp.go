package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

// WhatsAppMessage is the payload accepted by the WhatsApp gateway API
type WhatsAppMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendOTPWhatsApp sends the OTP to the user's phone number via the WhatsApp gateway
func SendOTPWhatsApp(phoneNumber string, otp string) {
	message := WhatsAppMessage{
		Phone:   phoneNumber,
		Message: fmt.Sprintf("Your verification code is: %s", otp),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal OTP message: %v", err)
		return
	}

	req, err := http.NewRequest("POST", os.Getenv("WHATSAPP_API_URL")+"/api/v1/sendSessionMessage", bytes.NewBuffer(messageJSON))
	if err != nil {
		log.Printf("Failed to create WhatsApp API request: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("WHATSAPP_API_KEY"))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Failed to send OTP via WhatsApp: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Failed to send OTP via WhatsApp: received status code %d", resp.StatusCode)
	}
}
