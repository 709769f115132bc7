package trac

import "context"

// ticketQueryAll lists every ticket id, lowest first, with no result cap.
const ticketQueryAll = "max=0&order=id"

// ListTickets returns all ticket ids in the environment in ascending order.
func (c *Client) ListTickets(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.call(ctx, "ticket.query", &ids, ticketQueryAll); err != nil {
		return nil, err
	}
	c.log.Debug("listed tickets", "env", c.envID, "count", len(ids))
	return ids, nil
}

// GetTicket fetches one ticket with its full attribute map.
func (c *Client) GetTicket(ctx context.Context, id int) (*Ticket, error) {
	var ticket Ticket
	if err := c.call(ctx, "ticket.get", &ticket, id); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicketChangeLog returns the ticket's change history, including comments
// (entries whose field is "comment").
func (c *Client) GetTicketChangeLog(ctx context.Context, id int) ([]ChangeEntry, error) {
	var entries []ChangeEntry
	if err := c.call(ctx, "ticket.changeLog", &entries, id); err != nil {
		return nil, err
	}
	return entries, nil
}
