package messaging

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	VHost       string
	Exchange    string
	ServiceName string
	RetryCount  int
	RetryDelay  time.Duration
}

func (c *Config) ConnectionURL() string {
	vhost := c.VHost
	if vhost != "/" && !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.Username, c.Password, c.Host, c.Port, vhost)
}
