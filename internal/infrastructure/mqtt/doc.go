// Package mqtt provides the MQTT client used for the trade-in event bus.
//
// It manages the broker connection (auto-reconnect, retained online status,
// Last Will and Testament offline status), publishing with QoS and payload
// limits, and subscriptions that survive reconnects.
//
// Resolution outcomes are published for downstream pricing and review
// tooling; operator alias commands and catalog change notices arrive on
// the command and catalog topics. See Topics for the hierarchy.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.CatalogChanged(), 1,
//	    func(topic string, payload []byte) error {
//	        cache.Invalidate()
//	        return nil
//	    })
//
//	client.PublishJSON(mqtt.Topics{}.Review(), event)
//
// The broker is optional. When mqtt.enabled is false no client is created
// and resolutions are not published.
package mqtt
