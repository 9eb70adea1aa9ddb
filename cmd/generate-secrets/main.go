package main

import (
	"fmt"
	"log"

	"github.com/detailnco/booking-backend/internal/utils"
)

// Prints fresh capability tokens in the same format the server issues.
// Useful for seeding test rows or probing the approve/reject endpoints by
// hand during development.
func main() {
	fmt.Println("===========================================")
	fmt.Println("Capability Token Generator")
	fmt.Println("===========================================")
	fmt.Println()

	labels := []string{"APPROVE_TOKEN", "REJECT_TOKEN", "PAY_TOKEN"}
	for _, label := range labels {
		token, err := utils.GenerateToken(32)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Printf("%s=%s\n", label, token)
	}

	fmt.Println()
	fmt.Println("⚠️  Tokens are single-use capabilities. Never commit them to version control!")
	fmt.Println("===========================================")
}
