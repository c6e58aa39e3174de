// Package planner turns a catalog listing into an ordered download plan,
// applying resume offsets and interactive selections.
package planner
