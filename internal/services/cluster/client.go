package cluster

import (
	"fmt"
	"log"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// NewConsulClient tries each address of a comma separated list and returns a
// client for the first agent that can see a cluster leader.
func NewConsulClient(addrs string) (*consul.Client, error) {
	for _, node := range strings.Split(addrs, ",") {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			log.Printf("[Consul] Could not create client for %s: %v", node, err)
			continue
		}
		if _, err := client.Status().Leader(); err != nil {
			log.Printf("[Consul] %s did not answer the leader check: %v", node, err)
			continue
		}

		log.Printf("[Consul] Connected to agent %s", node)
		return client, nil
	}
	return nil, fmt.Errorf("no consul agent available in %q", addrs)
}
