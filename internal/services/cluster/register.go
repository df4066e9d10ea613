package cluster

import (
	"fmt"
	"log"

	consul "github.com/hashicorp/consul/api"
)

// Registration describes how this process announces itself to Consul.
type Registration struct {
	ServiceName   string
	ServicePort   int
	AdvertiseHost string // host other services and the health check reach us on
	HealthPath    string
}

func (r Registration) serviceID() string {
	return fmt.Sprintf("%s-%s", r.ServiceName, r.AdvertiseHost)
}

func (r Registration) agentRegistration() *consul.AgentServiceRegistration {
	healthPath := r.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	return &consul.AgentServiceRegistration{
		ID:      r.serviceID(),
		Name:    r.ServiceName,
		Address: r.AdvertiseHost,
		Port:    r.ServicePort,
		Tags:    []string{"http", "websocket"},
		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d%s", r.AdvertiseHost, r.ServicePort, healthPath),
			Timeout:  "5s",
			Interval: "10s",
			// Let Consul clean up after an instance that died without
			// deregistering.
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterServiceInConsul registers the service with the local agent and
// returns the function that deregisters it again.
func RegisterServiceInConsul(client *consul.Client, reg Registration) (func() error, error) {
	registration := reg.agentRegistration()
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("register service %q in consul: %w", reg.ServiceName, err)
	}
	log.Printf("[Consul] Service '%s' registered with ID: %s", reg.ServiceName, registration.ID)

	deregister := func() error {
		if err := client.Agent().ServiceDeregister(registration.ID); err != nil {
			return fmt.Errorf("deregister service %q: %w", registration.ID, err)
		}
		log.Printf("[Consul] Service '%s' deregistered.", registration.ID)
		return nil
	}
	return deregister, nil
}
