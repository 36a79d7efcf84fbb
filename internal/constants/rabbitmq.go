package constants

const ExchangeName = "olx_parser_exchange"

// Queue names
const (
	QueueLinkTasks         = "olx_link_tasks"
	QueueProcessedListings = "olx_processed_listings"
)

// Routing keys
const (
	RoutingKeyLinkTasks         = "olx.links.tasks"
	RoutingKeyProcessedListings = "db.listings.save"
)
