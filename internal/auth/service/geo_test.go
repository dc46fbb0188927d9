package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticLocator(t *testing.T) {
	for _, addr := range []string{"127.0.0.1", "::1", "10.1.2.3", "192.168.0.7", "0.0.0.0", "unknown", "::ffff:127.0.0.1"} {
		city, country, err := StaticLocator{}.Locate(context.Background(), addr)
		require.NoError(t, err, addr)
		require.NotNil(t, city, addr)
		require.Equal(t, "Local", *city)
		require.Equal(t, "Localhost", *country)
	}

	for _, addr := range []string{"8.8.8.8", "2001:4860:4860::8888", "not-an-ip"} {
		city, country, err := StaticLocator{}.Locate(context.Background(), addr)
		require.NoError(t, err, addr)
		require.Nil(t, city, addr)
		require.Nil(t, country, addr)
	}
}
