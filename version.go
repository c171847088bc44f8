package techdocgen

// Version is the current techdocgen release.
const Version = "0.3.0"
