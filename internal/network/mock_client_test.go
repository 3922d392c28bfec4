package network

import (
	"context"

	"github.com/plexsphere/homerouter-exporter/internal/rtnl"
)

// mockRouteClient returns canned dump results.
type mockRouteClient struct {
	links    []rtnl.LinkInfo
	linkErr  error
	routes   []rtnl.RouteInfo
	routeErr error
	addrs    []rtnl.AddressInfo
	addrErr  error
}

func (m *mockRouteClient) Links(context.Context) ([]rtnl.LinkInfo, error) {
	return m.links, m.linkErr
}

func (m *mockRouteClient) Routes(context.Context, rtnl.Filter) ([]rtnl.RouteInfo, error) {
	return m.routes, m.routeErr
}

func (m *mockRouteClient) Addresses(context.Context, rtnl.Filter) ([]rtnl.AddressInfo, error) {
	return m.addrs, m.addrErr
}
