package handlers

import (
	"html"
	"strings"
)

// startPayload параметр deep link: "/start CODE" -> "CODE"
func startPayload(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// greeting приветствие по имени, если оно известно
func greeting(firstName, username string) string {
	name := firstName
	if name == "" {
		name = username
	}
	if name == "" {
		return "👋 Bonjour !"
	}
	return "👋 Bonjour, " + html.EscapeString(name) + " !"
}
