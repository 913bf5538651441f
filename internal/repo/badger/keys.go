package badger

import (
	"fmt"

	"github.com/ivankudzin/crush/internal/domain/model"
)

const (
	accountPrefix        = "account/"
	accountEmailPrefix   = "account_email/"
	profilePrefix        = "profile/"
	profileAccountPrefix = "profile_account/"
	matchPrefix          = "match/"
	activePairPrefix     = "match_pair/"
	profileMatchPrefix   = "match_by_profile/"
	messagePrefix        = "message/"
	conversationPrefix   = "message_pair/"
)

func accountKey(id string) []byte { return []byte(accountPrefix + id) }
func accountEmailKey(email string) []byte { return []byte(accountEmailPrefix + email) }
func profileKey(id string) []byte { return []byte(profilePrefix + id) }
func profileAccountKey(id string) []byte { return []byte(profileAccountPrefix + id) }
func matchKey(id string) []byte { return []byte(matchPrefix + id) }
func messageKey(id string) []byte { return []byte(messagePrefix + id) }

func activePairKey(a, b string) []byte {
	return []byte(activePairPrefix + model.PairKey(a, b))
}

func profileMatchesPrefix(profileID string) []byte {
	return []byte(profileMatchPrefix + profileID + "/")
}

func profileMatchKey(profileID, matchID string) []byte {
	return []byte(profileMatchPrefix + profileID + "/" + matchID)
}

func conversationKeysPrefix(a, b string) []byte {
	return []byte(conversationPrefix + model.PairKey(a, b) + "/")
}

// conversationKey sorts by creation time; the fixed width keeps byte order
// equal to numeric order.
func conversationKey(msg model.Message) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s",
		conversationPrefix,
		model.PairKey(msg.SenderID, msg.RecipientID),
		msg.CreatedAt.UTC().UnixNano(),
		msg.ID,
	))
}

func lastSegment(key []byte, prefix []byte) string {
	return string(key[len(prefix):])
}
