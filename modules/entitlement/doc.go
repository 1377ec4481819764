// Package entitlement exposes the entitlement engine as a JSON API:
// accounts and sessions, usage and lesson plan generation, School teams and
// invites, billing checkouts and webhooks, admin statistics and the
// development-only tools for simulating PIX payments and expiring grants.
//
// The caller is identified by a Bearer session token issued on register,
// login and refresh. Outside production the X-Account-ID header is accepted too.
package entitlement
