// Package alias persists confirmed raw-input to device mappings.
//
// An alias is created when a resolution is confirmed, either automatically
// by a high-confidence match or by an operator. Alias text is stored in
// normalised form (see Normalize) so lookups are case-insensitive and
// whitespace-insensitive. Saving is an upsert keyed on the normalised text;
// the resolver never deletes aliases.
//
// An alias may point at a device that has since been deactivated. Lookup
// does not check; operators clean these up via ListByDevice.
package alias
