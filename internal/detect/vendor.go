// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package detect

// Vendor is the manufacturer guessed from the CPUID vendor string.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorAMD
	VendorIntel
	VendorNSC
	VendorUMC
	VendorCyrix
	VendorNexGen
	VendorIDT
	VendorRise
	VendorTransmeta
)

// vendorSignatures maps the 12-byte leaf 0 vendor strings to vendors.
// AMD and Transmeta each shipped two different signatures.
var vendorSignatures = map[string]Vendor{
	"GenuineIntel": VendorIntel,
	"UMC UMC UMC ": VendorUMC,
	"AuthenticAMD": VendorAMD,
	"AMD ISBETTER": VendorAMD, // early K5 engineering samples
	"CyrixInstead": VendorCyrix,
	"NexGenDriven": VendorNexGen,
	"CentaurHauls": VendorIDT,
	"RiseRiseRise": VendorRise,
	"GenuineTMx86": VendorTransmeta,
	"TransmetaCPU": VendorTransmeta,
	"Geode By NSC": VendorNSC,
}

var vendorNames = map[Vendor]string{
	VendorUnknown:   "Unknown",
	VendorAMD:       "AMD",
	VendorIntel:     "Intel",
	VendorNSC:       "NSC",
	VendorUMC:       "UMC",
	VendorCyrix:     "Cyrix",
	VendorNexGen:    "NexGen",
	VendorIDT:       "IDT",
	VendorRise:      "Rise",
	VendorTransmeta: "Transmeta",
}

// VendorFromString matches a raw vendor string exactly. Anything not in
// the signature table is VendorUnknown.
func VendorFromString(s string) Vendor {
	if v, ok := vendorSignatures[s]; ok {
		return v
	}
	return VendorUnknown
}

func (v Vendor) String() string {
	if name, ok := vendorNames[v]; ok {
		return name
	}
	return vendorNames[VendorUnknown]
}

func (v Vendor) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
