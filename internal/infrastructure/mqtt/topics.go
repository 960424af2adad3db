package mqtt

import "fmt"

// Topic prefixes for the trade-in event bus. Every topic lives under
// TopicPrefix; the second level names the subsystem.
const (
	TopicPrefix = "tradein"

	TopicPrefixResolver = TopicPrefix + "/resolver"
	TopicPrefixCommand  = TopicPrefix + "/command"
	TopicPrefixCatalog  = TopicPrefix + "/catalog"
	TopicPrefixSystem   = TopicPrefix + "/system"
)

// Topics provides builders for trade-in MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Resolution("fuzzy")
//	// Returns: "tradein/resolver/resolution/fuzzy"
type Topics struct{}

// Resolution returns the topic a resolution made by strategy is published on.
//
// Example: tradein/resolver/resolution/token_overlap
func (Topics) Resolution(strategy string) string {
	if strategy == "" {
		strategy = "none"
	}
	return fmt.Sprintf("%s/resolution/%s", TopicPrefixResolver, strategy)
}

// AllResolutions matches every strategy's resolution topic.
func (Topics) AllResolutions() string {
	return TopicPrefixResolver + "/resolution/+"
}

// Review is published for results that need a storage pick or a manual match.
func (Topics) Review() string {
	return TopicPrefixResolver + "/review"
}

// AliasCommand carries operator alias writes: {"alias","device_id","created_by"}.
func (Topics) AliasCommand() string {
	return TopicPrefixCommand + "/alias"
}

// CatalogChanged is published by whatever edits the reference library.
// Receiving it invalidates the library cache.
func (Topics) CatalogChanged() string {
	return TopicPrefixCatalog + "/changed"
}

// SystemStatus carries the retained online/offline status of this service.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// All matches every trade-in topic.
func (Topics) All() string {
	return TopicPrefix + "/#"
}
