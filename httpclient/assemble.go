package httpclient

// identity is the credential field resolved once per call.
type identity struct {
	field string
	value string
}

func (c *client) addCommonParams(p *Params, id identity, attempt int) {
	p.Set(FieldSDK, c.config.SDK)
	p.Set(FieldRetryNumber, attempt)
	p.Set(id.field, id.value)
}

// assembleGet puts the mandatory fields first and then every caller parameter
// in its string form.
func (c *client) assembleGet(params *Params, id identity, attempt int) *Params {
	out := NewParams()
	c.addCommonParams(out, id, attempt)
	params.Each(func(k string, v any) {
		out.Set(k, stringValue(v))
	})
	return out
}

// assemblePost copies the caller body and then writes the mandatory fields
// over it. The caller's params are never modified.
func (c *client) assemblePost(params *Params, id identity, attempt int) *Params {
	out := params.Clone()
	c.addCommonParams(out, id, attempt)
	return out
}
