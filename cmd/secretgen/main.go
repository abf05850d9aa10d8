// Command secretgen prints a random value suitable for JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/Heidric/workify/pkg/security"
)

func main() {
	n := flag.Int("bytes", 48, "number of random bytes")
	flag.Parse()

	if *n < security.MinSecretBytes {
		log.Fatalf("at least %d bytes required", security.MinSecretBytes)
	}

	secret, err := security.Secret(*n)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(secret)
}
