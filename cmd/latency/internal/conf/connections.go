package conf

import (
	"encoding/json"
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
)

/* connection list
{
	"eth0": {"10.0.0.1:9000": 3, "10.0.0.2:9000": 1},
	"eth1": {"10.0.1.1:9000": 2}
}
*/

// LoadConnections decodes interface -> destination -> repeat count.
func LoadConnections(r io.Reader) (map[string]map[string]int, error) {
	var list map[string]map[string]int
	dec := json.NewDecoder(r)
	if err := dec.Decode(&list); err != nil {
		return nil, errors.Wrap(err, "decode connection list")
	}
	for iface, dests := range list {
		for dest, n := range dests {
			if err := checkAddr(dest); err != nil {
				return nil, errors.Wrapf(err, "iface[%s]", iface)
			}
			if n < 0 {
				return nil, errors.Errorf("iface[%s] dest[%s] negative count %d", iface, dest, n)
			}
		}
	}
	return list, nil
}

func LoadConnectionsFile(path string) (map[string]map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadConnections(f)
}

func checkAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.Wrapf(err, "dest[%s]", addr)
	}
	if host == "" || port == "" {
		return errors.Errorf("dest[%s] needs host and port", addr)
	}
	return nil
}
