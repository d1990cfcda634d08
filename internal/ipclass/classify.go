// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ipclass decides whether a normalized hostname or IP literal refers
// to a private, loopback, link-local, unique-local or reserved target. It
// never resolves names: a hostname that is not an IP literal and not in the
// reserved set is Public at this stage.
package ipclass

import (
	"fmt"
	"net"
	"strings"
)

// Class is the target classification of a hostname or IP literal.
type Class int

const (
	Public Class = iota
	Loopback
	Private
	LinkLocal
	UniqueLocal
	ReservedName
)

func (c Class) String() string {
	switch c {
	case Public:
		return "public"
	case Loopback:
		return "loopback"
	case Private:
		return "private"
	case LinkLocal:
		return "link-local"
	case UniqueLocal:
		return "unique-local"
	case ReservedName:
		return "reserved-name"
	default:
		return "unknown"
	}
}

// reservedNames are hostnames and IP literals that are never dialable
// targets regardless of policy toggles: localhost and its aliases and
// cloud metadata endpoints. Hosts arrive canonicalized, so alternate
// spellings of these literals still match.
var reservedNames = map[string]struct{}{
	"localhost":                {},
	"127.0.0.1":                {},
	"::1":                      {},
	"localhost.localdomain":    {},
	"ip6-localhost":            {},
	"ip6-loopback":             {},
	"metadata.google.internal": {},
	"metadata.goog":            {},
	"169.254.169.254":          {},
	"fd00:ec2::254":            {},
}

// rangeEntry maps a CIDR block to its classification. Order matters:
// the first containing block wins.
type rangeEntry struct {
	cidr  string
	class Class
	net   *net.IPNet
}

var rangeTable = []rangeEntry{
	{cidr: "127.0.0.0/8", class: Loopback},
	{cidr: "::1/128", class: Loopback},
	{cidr: "169.254.0.0/16", class: LinkLocal},
	{cidr: "fe80::/10", class: LinkLocal},
	{cidr: "fc00::/7", class: UniqueLocal},
	{cidr: "10.0.0.0/8", class: Private},
	{cidr: "172.16.0.0/12", class: Private},
	{cidr: "192.168.0.0/16", class: Private},
}

func init() {
	for i := range rangeTable {
		_, ipnet, err := net.ParseCIDR(rangeTable[i].cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in range table: %s", rangeTable[i].cidr))
		}
		rangeTable[i].net = ipnet
	}
}

// Classify returns the classification of a normalized hostname. The reserved
// set is checked first; reserved targets stay blocked regardless of the
// loopback/private policy toggles.
func Classify(host string) Class {
	lowered := strings.ToLower(strings.TrimSpace(host))
	if _, ok := reservedNames[lowered]; ok {
		return ReservedName
	}

	ip := net.ParseIP(lowered)
	if ip == nil {
		return Public
	}

	// Most stacks dial unspecified addresses locally.
	if ip.IsUnspecified() {
		return Loopback
	}

	for _, entry := range rangeTable {
		if entry.net.Contains(ip) {
			return entry.class
		}
	}
	return Public
}
