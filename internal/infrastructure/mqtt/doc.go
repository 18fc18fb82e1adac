// Package mqtt provides MQTT client connectivity for Firewatch Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Firewatch uses MQTT in two directions. Field sensors publish readings
// and status changes on firewatch/sensor/# topics, which the core
// ingests into the device registry. The core publishes registry events
// (household changes, device registrations, alerts) on firewatch/core/#
// topics for external consumers such as barangay alerting systems.
//
//	Sensors → MQTT Broker → Firewatch Core → MQTT Broker → Consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all sensor readings
//	err = client.Subscribe(mqtt.Topics{}.AllSensorReadings(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a registry event
//	topic := mqtt.Topics{}.HouseholdEvent("hh-1")
//	client.Publish(topic, []byte(`{"event":"updated"}`), 1, false)
package mqtt
