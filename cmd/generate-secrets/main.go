package main

import (
	"fmt"
	"log"
	"os"

	"github.com/harshit21255/delhi-transit-buddy/internal/utils"
)

// Usage: generate-secrets [admin-password]
// The password may also come from ADMIN_PASSWORD.
func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for Delhi Transit Buddy")
	fmt.Println("===========================================")
	fmt.Println()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)

	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
	} else {
		fmt.Println()
		fmt.Println("No admin password given; pass one as an argument to enable the admin API.")
	}

	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
