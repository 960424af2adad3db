// Package events connects the resolver to the MQTT event bus.
//
// Publisher emits one event per resolution on
// tradein/resolver/resolution/{strategy}, and a second copy on
// tradein/resolver/review when the result cannot be priced automatically.
// Listener consumes operator alias commands and catalog change notices.
package events
