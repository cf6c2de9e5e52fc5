package mqtt

import "fmt"

// Topic prefixes for all published events.
const (
	// TopicPrefix is the base for all topics.
	TopicPrefix = "grncore"

	// TopicPrefixReceipt is the base for receipt progress topics.
	TopicPrefixReceipt = "grncore/receipt"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "grncore/system"
)

// Topics provides builders for the MQTT topic hierarchy. Using these
// helpers keeps topic naming consistent between publisher and consumers.
type Topics struct{}

// ReceiptPart returns the topic for one part's state transitions.
//
// Example: grncore/receipt/3f2a.../part/2
func (Topics) ReceiptPart(batchID string, sectionIndex int) string {
	return fmt.Sprintf("%s/%s/part/%d", TopicPrefixReceipt, batchID, sectionIndex)
}

// ReceiptResult returns the topic for a batch's final result.
//
// Example: grncore/receipt/3f2a.../result
func (Topics) ReceiptResult(batchID string) string {
	return fmt.Sprintf("%s/%s/result", TopicPrefixReceipt, batchID)
}

// SystemStatus returns the topic for service online/offline status.
//
// Example: grncore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
