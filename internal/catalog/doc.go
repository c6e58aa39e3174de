package catalog

// Package catalog wraps the remote listing API: it pages through the
// ownership listing until exhaustion, resolves the device registry, and
// fetches binary payloads. Responses are validated and converted into
// domain entries at this boundary once; nothing downstream sees wire types.
