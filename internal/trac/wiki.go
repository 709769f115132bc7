package trac

import "context"

// ListWikiPages returns the names of all wiki pages in the environment.
func (c *Client) ListWikiPages(ctx context.Context) ([]string, error) {
	var pages []string
	if err := c.call(ctx, "wiki.getAllPages", &pages); err != nil {
		return nil, err
	}
	c.log.Debug("listed wiki pages", "env", c.envID, "count", len(pages))
	return pages, nil
}

// GetWikiPage returns the raw wiki markup of the latest page revision.
func (c *Client) GetWikiPage(ctx context.Context, name string) (string, error) {
	var text string
	if err := c.call(ctx, "wiki.getPage", &text, name); err != nil {
		return "", err
	}
	return text, nil
}

// ListWikiAttachments returns the attachment paths of a page. Trac returns
// them as "PageName/filename".
func (c *Client) ListWikiAttachments(ctx context.Context, page string) ([]string, error) {
	var attachments []string
	if err := c.call(ctx, "wiki.listAttachments", &attachments, page); err != nil {
		return nil, err
	}
	return attachments, nil
}

// GetWikiAttachment downloads one attachment by its "PageName/filename" path.
func (c *Client) GetWikiAttachment(ctx context.Context, path string) ([]byte, error) {
	var data Binary
	if err := c.call(ctx, "wiki.getAttachment", &data, path); err != nil {
		return nil, err
	}
	return data, nil
}
