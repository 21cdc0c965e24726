package launchconfig

import (
	"fmt"
	"net/netip"

	"github.com/cutoverlabs/cutover/pkg/recovery"
)

// reservedHeadAddresses is the count of addresses at the start of a subnet
// the platform reserves (network address plus three infrastructure
// addresses); the subnet's last address is reserved as well.
const reservedHeadAddresses = 4

// ValidateStaticIP checks a static IP assignment against its target subnet:
// the address must be a valid private IPv4 inside the subnet's CIDR, outside
// the reserved head/tail addresses, and not claimed by another server in the
// same group and subnet. claimed maps IP -> owning server ID.
func ValidateStaticIP(ip, serverID string, subnet *recovery.Subnet, claimed map[string]string) error {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fmt.Errorf("static IP %q is not a valid IP address: %w", ip, err)
	}

	if !addr.Is4() {
		return fmt.Errorf("static IP %s must be an IPv4 address", ip)
	}

	if !addr.IsPrivate() {
		return fmt.Errorf("static IP %s is not in a private address range", ip)
	}

	prefix, err := netip.ParsePrefix(subnet.CIDRBlock)
	if err != nil {
		return fmt.Errorf("subnet %s has an invalid CIDR block %q: %w", subnet.ID, subnet.CIDRBlock, err)
	}

	if !prefix.Contains(addr) {
		return fmt.Errorf("static IP %s is outside subnet %s CIDR %s", ip, subnet.ID, subnet.CIDRBlock)
	}

	if reserved(addr, prefix) {
		return fmt.Errorf("static IP %s falls in the reserved addresses of subnet %s", ip, subnet.ID)
	}

	if owner, ok := claimed[ip]; ok && owner != serverID {
		return fmt.Errorf("static IP %s is already assigned to server %s in the same subnet", ip, owner)
	}

	return nil
}

// reserved reports whether addr is among the subnet's first four or last
// address.
func reserved(addr netip.Addr, prefix netip.Prefix) bool {
	network := prefix.Masked().Addr()

	head := network
	for range reservedHeadAddresses {
		if addr == head {
			return true
		}

		head = head.Next()
	}

	return addr == lastAddr(prefix)
}

// lastAddr computes the highest address in the prefix.
func lastAddr(prefix netip.Prefix) netip.Addr {
	raw := prefix.Masked().Addr().As4()
	hostBits := 32 - prefix.Bits()

	var value uint32
	for _, b := range raw {
		value = value<<8 | uint32(b)
	}

	if hostBits > 0 {
		value |= (uint32(1) << hostBits) - 1
	}

	return netip.AddrFrom4([4]byte{
		byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value),
	})
}
