package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rosterhub.com/rosterhub/security"
)

func main() {
	name := flag.String("name", "scanner-operator", "operator user name")
	email := flag.String("email", "", "operator email")
	ttl := flag.Int64("ttl", 8*3600, "token lifetime in seconds")
	flag.Parse()

	secret := os.Getenv("ROSTERHUB_SIGNING_SECRET")
	if secret == "" {
		log.Fatal("ROSTERHUB_SIGNING_SECRET is not set")
	}

	token, err := security.CreateIdentityToken(&security.RosterhubIdentity{
		Id:       1,
		UserName: *name,
		Email:    *email,
		Provider: "cli",
	}, secret, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
