// Package chat holds the room identity helpers shared by the repository,
// service and handler layers.
package chat

import "fmt"

// RoomKey derives the canonical room identity for the conversation between
// two users about one product. The pair is unordered: either participant
// opening the thread lands on the same key. The key is a grouping handle
// only, never persisted or exposed outside the process.
func RoomKey(userA, userB, productID string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%s:%s:%s", userA, userB, productID)
}
